package backup

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zoomvault/zoomvault/internal/models"
)

// kindDirs maps recording kinds to their directory under the backup root.
var kindDirs = map[models.RecordingKind]string{
	models.KindMeeting: "meetings",
	models.KindPhone:   "phone",
	models.KindWebinar: "webinars",
}

// destPath returns where an item lands on disk:
// <baseDir>/<kind>/<principal email>/<filename>.
func destPath(baseDir string, exts map[string]string, item *models.InventoryItem) string {
	return filepath.Join(baseDir, kindDirs[item.Kind], item.PrincipalEmail, fileName(item, exts))
}

func fileName(item *models.InventoryItem, exts map[string]string) string {
	ts := item.StartTime.UTC().Format("2006-01-02_15-04-05")
	if item.Kind == models.KindPhone {
		return fmt.Sprintf("call_%s_%s.%s", safeFileName(item.FileID), ts, extension(item, exts))
	}
	return fmt.Sprintf("%s_%s_%s.%s", ts, safeFileName(item.Topic), safeFileName(item.FileID), extension(item, exts))
}

// extension picks the file suffix: the listing's own extension when present,
// otherwise the configured file-type mapping, otherwise the raw file type.
func extension(item *models.InventoryItem, exts map[string]string) string {
	if ext := strings.ToLower(item.FileExtension); ext != "" {
		return ext
	}
	fileType := strings.ToLower(item.FileType)
	if mapped, ok := exts[fileType]; ok {
		return mapped
	}
	if fileType != "" {
		return fileType
	}
	return "bin"
}

// safeFileName replaces characters that are unsafe in file names on common
// filesystems. Whitespace collapses to underscores to keep paths shell
// friendly.
func safeFileName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r) || r < 0x20:
			b.WriteRune('_')
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) > 120 {
		name = name[:120]
	}
	if name == "" {
		name = "unnamed"
	}
	return name
}
