// Package ytdlp downloads media through the yt-dlp command-line tool and
// translates its progress output into short console lines.
package ytdlp
