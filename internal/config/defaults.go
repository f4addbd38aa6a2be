package config

const (
	defaultDataDir      = "~/.local/share/rlviz"
	defaultUploadDir    = "~/.local/share/rlviz/uploads"
	defaultLogDir       = "~/.local/share/rlviz/logs"
	defaultAPIBind      = "127.0.0.1:8077"
	defaultLogLevel     = "info"
	defaultLogFormat    = "console"
	defaultHeightPolicy = HeightPolicyShared
	defaultPanelSpacing = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Viewer: Viewer{
			HeightPolicy: defaultHeightPolicy,
			PanelSpacing: defaultPanelSpacing,
		},
	}
}
