package content

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Archive is the flat-file store for fetched content. Raw payloads live at
// {dir}/{yyyymmdd}_{id}.{ext}; extracted and speech-ready text under
// {dir}/raw/; synthesized audio under {dir}/speech/.
type Archive struct {
	dir string
	now func() time.Time
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir, now: time.Now}
}

// SaveRaw writes the retrieved bytes for an article and returns the path.
func (a *Archive) SaveRaw(doc *Document, articleID int64) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s_%d.%s", a.now().Format("20060102"), articleID, doc.Ext)
	path := filepath.Join(a.dir, name)

	if err := os.WriteFile(path, doc.Raw, 0o644); err != nil {
		return "", fmt.Errorf("write raw content: %w", err)
	}

	return path, nil
}

// SaveText writes the extracted body text plus its speech-preprocessed
// variant for later synthesis and summary backfill.
func (a *Archive) SaveText(articleID int64, text string) error {
	rawDir := filepath.Join(a.dir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return fmt.Errorf("create raw directory: %w", err)
	}

	path := filepath.Join(rawDir, fmt.Sprintf("article_%d.txt", articleID))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write extracted text: %w", err)
	}

	audioPath := filepath.Join(rawDir, fmt.Sprintf("article_%d_audio.txt", articleID))
	if err := os.WriteFile(audioPath, []byte(PrepareForSpeech(text)), 0o644); err != nil {
		return fmt.Errorf("write speech text: %w", err)
	}

	return nil
}

// ReadText returns the archived extracted text for an article, or "" when
// none was archived.
func (a *Archive) ReadText(articleID int64) string {
	data, err := os.ReadFile(filepath.Join(a.dir, "raw", fmt.Sprintf("article_%d.txt", articleID)))
	if err != nil {
		return ""
	}

	return string(data)
}

// SaveSpeech writes synthesized audio and returns the path.
func (a *Archive) SaveSpeech(articleID int64, source string, format string, audio []byte) (string, error) {
	speechDir := filepath.Join(a.dir, "speech")
	if err := os.MkdirAll(speechDir, 0o755); err != nil {
		return "", fmt.Errorf("create speech directory: %w", err)
	}

	path := filepath.Join(speechDir, fmt.Sprintf("%d-%s.%s", articleID, source, format))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}

	return path, nil
}
