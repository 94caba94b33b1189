package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
)

const defaultOCRTimeout = 30 * time.Second

// CommandRecognizer pipes images through an external tesseract binary.
type CommandRecognizer struct {
	binary  string
	lang    string
	timeout time.Duration
	logger  *zerolog.Logger
}

// NewCommandRecognizer returns a recognizer for the given binary, or
// ErrOCRUnavailable when the binary cannot be found on PATH.
func NewCommandRecognizer(binary, lang string, timeout time.Duration, logger *zerolog.Logger) (*CommandRecognizer, error) {
	if binary == "" {
		return nil, apperrors.ErrOCRUnavailable
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrOCRUnavailable, binary)
	}

	if timeout <= 0 {
		timeout = defaultOCRTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &CommandRecognizer{binary: path, lang: lang, timeout: timeout, logger: logger}, nil
}

// Recognize validates the image header and returns the recognized text.
func (r *CommandRecognizer) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := CheckImage(img); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{"stdin", "stdout"}
	if r.lang != "" {
		args = append(args, "-l", r.lang)
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdin = bytes.NewReader(img)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		r.logger.Debug().Err(err).Str("stderr", strings.TrimSpace(stderr.String())).Msg("ocr command failed")

		return "", fmt.Errorf("run ocr: %w", err)
	}

	return stdout.String(), nil
}

// CheckImage reports ErrImageDecode when the buffer is not a decodable image.
func CheckImage(img []byte) error {
	if len(img) == 0 {
		return fmt.Errorf("%w: empty buffer", apperrors.ErrImageDecode)
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrImageDecode, err)
	}

	return nil
}
