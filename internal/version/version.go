// 包 version：构建信息，由 -ldflags "-X tenant-api/internal/version.Commit=..." 注入
package version

var (
	Commit  = "dev"
	Version = "0.1.0"
)

func String() string { return Version + "+" + Commit }
