package s3util

import "strings"

// Output folders for derived objects. Both live in the source bucket.
const (
	AudioPrefix   = "output/audio/"
	SummaryPrefix = "output/summary/"
)

// BaseName returns the last "/"-separated segment of key.
func BaseName(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}

// AudioKey derives the audio object key for a source text key: the base name
// cut at its first ".", with an .mp3 extension, under AudioPrefix.
// "input/notes.txt" becomes "output/audio/notes.mp3".
func AudioKey(sourceKey string) string {
	name, _, _ := strings.Cut(BaseName(sourceKey), ".")
	return AudioPrefix + name + ".mp3"
}

// SummaryKey derives the summary object key for a source text key: the base
// name, unchanged, under SummaryPrefix.
func SummaryKey(sourceKey string) string {
	return SummaryPrefix + BaseName(sourceKey)
}
