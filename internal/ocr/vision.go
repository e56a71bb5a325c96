// Package ocr provides text recognition over captured page screenshots.
package ocr

import (
	"context"
	"fmt"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Reader turns an image into plain text. Implementations are black boxes;
// the pipeline depends only on this contract.
type Reader interface {
	Text(ctx context.Context, image []byte) (string, error)
}

const annotateTimeout = 60 * time.Second

// VisionReader implements Reader with Google Cloud Vision document text
// detection. Credentials resolve through the usual Google client options.
type VisionReader struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

func NewVisionReader(ctx context.Context, opts ...option.ClientOption) (*VisionReader, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &VisionReader{
		client: client,
		log:    log.With().Str("component", "ocr").Logger(),
	}, nil
}

// Text runs document text detection over the image bytes. Empty images and
// empty annotations yield empty text, not errors.
func (r *VisionReader) Text(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, annotateTimeout)
	defer cancel()

	resp, err := r.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}

	text := r0.FullTextAnnotation.Text
	r.log.Debug().Int("chars", len(text)).Msg("ocr complete")
	return text, nil
}

func (r *VisionReader) Close() error {
	return r.client.Close()
}
