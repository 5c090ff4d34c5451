package ytdlp

import "strings"

// ProcessingMessage is reported once the download part is complete.
const ProcessingMessage = "Download finished, now processing..."

// ProgressPrefix starts every translated progress line.
const ProgressPrefix = "Downloading:"

var postProcessors = []string{"[ExtractAudio]", "[Merger]", "[VideoConvertor]", "[VideoRemuxer]", "[FixupM3u8]", "[FixupM4a]", "[MoveFiles]"}

// translateProgress turns a "[download]  42.0% of 3.50MiB at 1.20MiB/s ETA
// 00:03" line into "Downloading: 42.0% of 3.50MiB at 1.20MiB/s".
func translateProgress(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "[download]" || !strings.HasSuffix(fields[1], "%") {
		return "", false
	}
	percent := fields[1]
	total := valueAfter(fields, "of")
	speed := valueAfter(fields, "at")
	return ProgressPrefix + " " + percent + " of " + total + " at " + speed, true
}

func valueAfter(fields []string, key string) string {
	for i := 2; i < len(fields)-1; i++ {
		if fields[i] != key {
			continue
		}
		v := fields[i+1]
		if v == "~" && i+2 < len(fields) {
			v = "~" + fields[i+2]
		}
		if v == "Unknown" && i+2 < len(fields) {
			v = "Unknown " + fields[i+2]
		}
		return v
	}
	return "N/A"
}

func isPostProcessing(line string) bool {
	for _, p := range postProcessors {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func isCompleteDownload(line string) bool {
	fields := strings.Fields(line)
	return len(fields) >= 2 && fields[0] == "[download]" && fields[1] == "100%"
}
