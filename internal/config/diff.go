package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked individually;
// everything else sets RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	PassagesChanged  bool
	NewPassagesFile  string
	GlossChanged     bool
	NewGlossDir      string
	CaptionChanged   bool
	NewCaptionConfig CaptionConfig

	// RestartRequired is set when server, ASR, VAD, or storage settings
	// changed. Live sessions keep their engines, so these only take effect
	// on the next start.
	RestartRequired bool
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Reading.PassagesFile != new.Reading.PassagesFile {
		d.PassagesChanged = true
		d.NewPassagesFile = new.Reading.PassagesFile
	}

	if old.Gloss.DictionariesDir != new.Gloss.DictionariesDir {
		d.GlossChanged = true
		d.NewGlossDir = new.Gloss.DictionariesDir
	}

	if old.Caption != new.Caption {
		d.CaptionChanged = true
		d.NewCaptionConfig = new.Caption
	}

	if old.Server.ListenAddr != new.Server.ListenAddr ||
		old.ASR != new.ASR ||
		old.VAD != new.VAD ||
		old.Storage != new.Storage {
		d.RestartRequired = true
	}

	return d
}
