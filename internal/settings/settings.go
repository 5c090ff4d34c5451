package settings

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"scribe/internal/services"
)

// FormatAll selects every output format.
const FormatAll = "all"

// LanguageAuto lets the transcriber detect the spoken language.
const LanguageAuto = "auto"

var (
	Models       = []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3"}
	Tasks        = []string{"transcribe", "translate"}
	ComputeTypes = []string{"default", "auto", "int8", "int8_float16", "int8_float32", "int8_bfloat16", "int16", "float16", "float32", "bfloat16"}
	Devices      = []string{"cuda", "cpu"}
	VADMethods   = []string{"silero_v4_fw", "silero_v5_fw", "silero_v3", "silero_v4", "silero_v5", "pyannote_v3", "pyannote_onnx_v3", "auditok", "webrtc"}
	// OutputFormats lists the selectable subtitle formats in display order.
	OutputFormats = []string{"json", "vtt", "srt", "lrc", "txt", "tsv", FormatAll}

	// whisperLanguages are codes the transcriber accepts that are not all
	// canonical BCP 47 tags (jw, haw, yue).
	whisperLanguages = []string{
		"af", "am", "ar", "as", "az", "ba", "be", "bg", "bn", "bo", "br", "bs", "ca", "cs", "cy", "da", "de", "el", "en", "es",
		"et", "eu", "fa", "fi", "fo", "fr", "gl", "gu", "ha", "haw", "he", "hi", "hr", "ht", "hu", "hy", "id", "is", "it", "ja",
		"jw", "ka", "kk", "km", "kn", "ko", "la", "lb", "ln", "lo", "lt", "lv", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt",
		"my", "ne", "nl", "nn", "no", "oc", "pa", "pl", "ps", "pt", "ro", "ru", "sa", "sd", "si", "sk", "sl", "sn", "so", "sq",
		"sr", "su", "sv", "sw", "ta", "te", "tg", "th", "tk", "tl", "tr", "tt", "uk", "ur", "uz", "vi", "yi", "yo", "yue", "zh",
	}
)

// Settings are the persisted transcription preferences.
type Settings struct {
	Model         string   `toml:"model"`
	Task          string   `toml:"task"`
	Language      string   `toml:"language"`
	ComputeType   string   `toml:"compute_type"`
	Device        string   `toml:"device"`
	Temperature   float64  `toml:"temperature"`
	BeamSize      int      `toml:"beam_size"`
	BestOf        int      `toml:"best_of"`
	Patience      float64  `toml:"patience"`
	InitialPrompt string   `toml:"initial_prompt"`
	OutputDir     string   `toml:"output_dir"`
	OutputFormats []string `toml:"output_formats"`
	AudioOnly     bool     `toml:"audio_only"`

	WordTimestamps    bool `toml:"word_timestamps"`
	WithoutTimestamps bool `toml:"without_timestamps"`
	Verbose           bool `toml:"verbose"`
	PrintProgress     bool `toml:"print_progress"`
	HighlightWords    bool `toml:"highlight_words"`

	VADFilter      bool    `toml:"vad_filter"`
	VADMethod      string  `toml:"vad_method"`
	VADThreshold   float64 `toml:"vad_threshold"`
	VADMinSpeechMS int     `toml:"vad_min_speech_ms"`

	FFMP3        bool    `toml:"ff_mp3"`
	FFLoudnorm   bool    `toml:"ff_loudnorm"`
	FFSpeechnorm bool    `toml:"ff_speechnorm"`
	TempoEnabled bool    `toml:"tempo_enabled"`
	FFTempo      float64 `toml:"ff_tempo"`
}

// Default returns the settings used when nothing has been saved.
func Default() Settings {
	return Settings{
		Model:          "large-v3",
		Task:           "transcribe",
		Language:       LanguageAuto,
		ComputeType:    "float16",
		Device:         "cuda",
		Temperature:    0,
		BeamSize:       5,
		BestOf:         5,
		Patience:       1.0,
		OutputFormats:  []string{"srt"},
		AudioOnly:      true,
		VADMethod:      "silero_v4_fw",
		VADThreshold:   0.5,
		VADMinSpeechMS: 250,
		FFTempo:        1.0,
	}
}

// Change describes one applied mutation. Key is "*" for a full reset.
type Change struct {
	Key      string
	Old      string
	New      string
	Snapshot Settings
}

type field struct {
	key string
	get func(*Settings) string
	set func(*Settings, string) error
}

var fields = []field{
	choiceField("model", Models, func(s *Settings) *string { return &s.Model }),
	choiceField("task", Tasks, func(s *Settings) *string { return &s.Task }),
	{key: "language", get: func(s *Settings) string { return s.Language }, set: setLanguage},
	choiceField("compute_type", ComputeTypes, func(s *Settings) *string { return &s.ComputeType }),
	choiceField("device", Devices, func(s *Settings) *string { return &s.Device }),
	floatField("temperature", 0, 1, 1, func(s *Settings) *float64 { return &s.Temperature }),
	intField("beam_size", 1, 100, func(s *Settings) *int { return &s.BeamSize }),
	intField("best_of", 1, 100, func(s *Settings) *int { return &s.BestOf }),
	floatField("patience", 0, 10, 1, func(s *Settings) *float64 { return &s.Patience }),
	textField("initial_prompt", func(s *Settings) *string { return &s.InitialPrompt }),
	textField("output_dir", func(s *Settings) *string { return &s.OutputDir }),
	{key: "output_formats", get: func(s *Settings) string { return strings.Join(s.OutputFormats, ",") }, set: setFormats},
	boolField("audio_only", func(s *Settings) *bool { return &s.AudioOnly }),
	boolField("word_timestamps", func(s *Settings) *bool { return &s.WordTimestamps }),
	boolField("without_timestamps", func(s *Settings) *bool { return &s.WithoutTimestamps }),
	boolField("verbose", func(s *Settings) *bool { return &s.Verbose }),
	boolField("print_progress", func(s *Settings) *bool { return &s.PrintProgress }),
	boolField("highlight_words", func(s *Settings) *bool { return &s.HighlightWords }),
	boolField("vad_filter", func(s *Settings) *bool { return &s.VADFilter }),
	choiceField("vad_method", VADMethods, func(s *Settings) *string { return &s.VADMethod }),
	floatField("vad_threshold", 0, 1, 2, func(s *Settings) *float64 { return &s.VADThreshold }),
	intField("vad_min_speech_ms", 0, 10000, func(s *Settings) *int { return &s.VADMinSpeechMS }),
	boolField("ff_mp3", func(s *Settings) *bool { return &s.FFMP3 }),
	boolField("ff_loudnorm", func(s *Settings) *bool { return &s.FFLoudnorm }),
	boolField("ff_speechnorm", func(s *Settings) *bool { return &s.FFSpeechnorm }),
	boolField("tempo_enabled", func(s *Settings) *bool { return &s.TempoEnabled }),
	floatField("ff_tempo", 0.5, 2, 1, func(s *Settings) *float64 { return &s.FFTempo }),
}

// Keys lists every settable key in display order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	return keys
}

func lookup(key string) (field, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range fields {
		if f.key == key {
			return f, true
		}
	}
	return field{}, false
}

// Get returns the string form of key.
func (s Settings) Get(key string) (string, error) {
	f, ok := lookup(key)
	if !ok {
		return "", unknownKey(key)
	}
	return f.get(&s), nil
}

// Set validates value and assigns it to key.
func (s *Settings) Set(key, value string) (Change, error) {
	f, ok := lookup(key)
	if !ok {
		return Change{}, unknownKey(key)
	}
	old := f.get(s)
	if err := f.set(s, strings.TrimSpace(value)); err != nil {
		return Change{}, services.Wrap(services.ErrValidation, "settings", f.key, "", err)
	}
	return Change{Key: f.key, Old: old, New: f.get(s), Snapshot: s.Clone()}, nil
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.OutputFormats = slices.Clone(s.OutputFormats)
	return s
}

// Validate reports the first field holding a value Set would reject.
func (s Settings) Validate() error {
	scratch := Default()
	for _, f := range fields {
		if _, err := scratch.Set(f.key, f.get(&s)); err != nil {
			return err
		}
	}
	return nil
}

// sanitize replaces every invalid field with its default and drops unknown
// output formats. It returns the keys that were reset.
func (s *Settings) sanitize() []string {
	s.OutputFormats = knownFormats(s.OutputFormats)
	defaults := Default()
	var reset []string
	for _, f := range fields {
		current := f.get(s)
		if err := f.set(s, current); err != nil {
			_ = f.set(s, f.get(&defaults))
			reset = append(reset, f.key)
		}
	}
	return reset
}

// SelectedFormats resolves the formats passed to the transcriber: "all"
// wins over any other selection and an empty selection means srt.
func (s Settings) SelectedFormats() []string {
	formats := knownFormats(s.OutputFormats)
	if slices.Contains(formats, FormatAll) {
		return []string{FormatAll}
	}
	if len(formats) == 0 {
		return []string{"srt"}
	}
	return formats
}

// LanguageName returns a human-readable name for the configured language.
func (s Settings) LanguageName() string {
	if s.Language == "" || s.Language == LanguageAuto {
		return "auto-detect"
	}
	tag, err := language.Parse(s.Language)
	if err != nil {
		return s.Language
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return s.Language
	}
	return name
}

// FormatFloat renders a float the way the transcriber's own help text shows
// values: shortest form with at least one decimal place.
func FormatFloat(v float64) string {
	out := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}
	return out
}

func unknownKey(key string) error {
	return services.Wrap(services.ErrValidation, "settings", "lookup", fmt.Sprintf("unknown key %q", key), nil)
}

func choiceField(key string, choices []string, ptr func(*Settings) *string) field {
	return field{
		key: key,
		get: func(s *Settings) string { return *ptr(s) },
		set: func(s *Settings, v string) error {
			if !slices.Contains(choices, v) {
				return fmt.Errorf("%q is not one of %s", v, strings.Join(choices, ", "))
			}
			*ptr(s) = v
			return nil
		},
	}
}

func textField(key string, ptr func(*Settings) *string) field {
	return field{
		key: key,
		get: func(s *Settings) string { return *ptr(s) },
		set: func(s *Settings, v string) error {
			*ptr(s) = v
			return nil
		},
	}
}

func boolField(key string, ptr func(*Settings) *bool) field {
	return field{
		key: key,
		get: func(s *Settings) string { return strconv.FormatBool(*ptr(s)) },
		set: func(s *Settings, v string) error {
			b, err := parseBool(v)
			if err != nil {
				return err
			}
			*ptr(s) = b
			return nil
		},
	}
}

func intField(key string, lo, hi int, ptr func(*Settings) *int) field {
	return field{
		key: key,
		get: func(s *Settings) string { return strconv.Itoa(*ptr(s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%q is not an integer", v)
			}
			if n < lo || n > hi {
				return fmt.Errorf("%d is outside %d..%d", n, lo, hi)
			}
			*ptr(s) = n
			return nil
		},
	}
}

func floatField(key string, lo, hi float64, decimals int, ptr func(*Settings) *float64) field {
	scale := math.Pow(10, float64(decimals))
	return field{
		key: key,
		get: func(s *Settings) string { return FormatFloat(*ptr(s)) },
		set: func(s *Settings, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(f) {
				return fmt.Errorf("%q is not a number", v)
			}
			f = math.Round(f*scale) / scale
			if f < lo || f > hi {
				return fmt.Errorf("%s is outside %s..%s", FormatFloat(f), FormatFloat(lo), FormatFloat(hi))
			}
			*ptr(s) = f
			return nil
		},
	}
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean", v)
	}
}

func setLanguage(s *Settings, v string) error {
	v = strings.ToLower(v)
	if v == "" || v == LanguageAuto {
		s.Language = LanguageAuto
		return nil
	}
	if !slices.Contains(whisperLanguages, v) {
		if _, err := language.Parse(v); err != nil {
			return fmt.Errorf("%q is not a language code: %w", v, err)
		}
		return fmt.Errorf("%q is not supported by the transcriber", v)
	}
	s.Language = v
	return nil
}

func setFormats(s *Settings, v string) error {
	var formats []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
		part = strings.ToLower(part)
		if !slices.Contains(OutputFormats, part) {
			return fmt.Errorf("unknown output format %q", part)
		}
		if !slices.Contains(formats, part) {
			formats = append(formats, part)
		}
	}
	s.OutputFormats = formats
	return nil
}

func knownFormats(in []string) []string {
	var out []string
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		if slices.Contains(OutputFormats, f) && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
