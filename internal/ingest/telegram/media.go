package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"
)

// maxImageSize skips documents too large to be screenshots or flyers.
const maxImageSize = 10 * 1024 * 1024

// imageLocation returns the file location of the largest rendition of an
// image attachment, or nil when media is not an image.
func imageLocation(media tg.MessageMediaClass) tg.InputFileLocationClass {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return nil
		}

		thumbSize := largestPhotoSize(photo.Sizes)
		if thumbSize == "" {
			return nil
		}

		return &tg.InputPhotoFileLocation{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
			ThumbSize:     thumbSize,
		}
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok || !isImageDocument(doc) || doc.Size > maxImageSize {
			return nil
		}

		return &tg.InputDocumentFileLocation{
			ID:            doc.ID,
			AccessHash:    doc.AccessHash,
			FileReference: doc.FileReference,
		}
	default:
		return nil
	}
}

func largestPhotoSize(sizes []tg.PhotoSizeClass) string {
	var (
		best    string
		maxArea int
	)

	for _, size := range sizes {
		switch s := size.(type) {
		case *tg.PhotoSize:
			if s.W*s.H > maxArea {
				maxArea, best = s.W*s.H, s.Type
			}
		case *tg.PhotoSizeProgressive:
			if s.W*s.H > maxArea {
				maxArea, best = s.W*s.H, s.Type
			}
		}
	}

	return best
}

func isImageDocument(doc *tg.Document) bool {
	if strings.HasPrefix(doc.MimeType, "image/") {
		return true
	}

	for _, attr := range doc.Attributes {
		if _, ok := attr.(*tg.DocumentAttributeImageSize); ok {
			return true
		}
	}

	return false
}

// downloadImage fetches an image attachment. It returns nil without error
// for media that is not an image.
func downloadImage(ctx context.Context, api downloader.Client, media tg.MessageMediaClass) ([]byte, error) {
	loc := imageLocation(media)
	if loc == nil {
		return nil, nil
	}

	buf := new(bytes.Buffer)
	if _, err := downloader.NewDownloader().Download(api, loc).Stream(ctx, buf); err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}

	return buf.Bytes(), nil
}
