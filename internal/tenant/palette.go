package tenant

// Palette 租户着色表，按 tenant_id % 6 取色
var Palette = [6]string{"#ff0000", "#00ff00", "#0000ff", "#ffff00", "#ff00ff", "#00ffff"}

func ColorFor(tenantID int) string {
	i := tenantID % len(Palette)
	if i < 0 {
		i += len(Palette)
	}
	return Palette[i]
}
