package s3io

import "strings"

const keySeparator = "_"

// BuildKey constructs the object key for an uploaded file:
// "<generatedFileId>_<originalFileName>".
func BuildKey(fileID, fileName string) string {
	return fileID + keySeparator + fileName
}

// ParseKey splits an object key back into file id and original name.
func ParseKey(key string) (fileID, fileName string, ok bool) {
	id, name, found := strings.Cut(key, keySeparator)
	if !found || id == "" || name == "" {
		return "", "", false
	}
	return id, name, true
}
