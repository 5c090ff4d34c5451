package config

const (
	defaultInstallDir            = "~/.local/share/scribe/bin"
	defaultLogDir                = "~/.local/share/scribe/logs"
	defaultStateDir              = "~/.local/share/scribe"
	defaultSettingsPath          = "~/.config/scribe/settings.toml"
	defaultLinuxURL              = "https://github.com/Purfview/whisper-standalone-win/releases/download/Faster-Whisper-XXL/Faster-Whisper-XXL_r245.4_linux.7z"
	defaultWindowsURL            = "https://github.com/Purfview/whisper-standalone-win/releases/download/Faster-Whisper-XXL/Faster-Whisper-XXL_r245.4_windows.7z"
	defaultConnectTimeoutSeconds = 15
	defaultTranscriber           = "faster-whisper-xxl"
	defaultFFmpeg                = "ffmpeg"
	defaultYtDlp                 = "yt-dlp"
	defaultStopGraceSeconds      = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InstallDir:   defaultInstallDir,
			LogDir:       defaultLogDir,
			StateDir:     defaultStateDir,
			SettingsPath: defaultSettingsPath,
		},
		Bootstrap: Bootstrap{
			LinuxURL:              defaultLinuxURL,
			WindowsURL:            defaultWindowsURL,
			ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
		},
		Tools: Tools{
			Transcriber: defaultTranscriber,
			FFmpeg:      defaultFFmpeg,
			YtDlp:       defaultYtDlp,
		},
		Process: Process{
			StopGraceSeconds: defaultStopGraceSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
