package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-web/internal/models"
	appErrors "github.com/noah-isme/sma-adp-web/pkg/errors"
)

const defaultMaxPhotoBytes = 2 << 20

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type photoStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	UpdatePhoto(ctx context.Context, tx *sqlx.Tx, id, photo string) error
}

type photoStore interface {
	Save(name string, data []byte) (string, error)
	Delete(name string) error
	Open(name string) (*os.File, error)
}

type photoSigner interface {
	Generate(subject, file string) (string, time.Time, error)
	Parse(token string) (subject, file string, err error)
}

// PhotoConfig limits accepted uploads.
type PhotoConfig struct {
	MaxBytes     int64
	AllowedMIMEs []string
}

// Photo is a stored or generated image ready to be served.
type Photo struct {
	Data        []byte
	ContentType string
}

// PhotoService stores student photos and issues signed URLs for them.
type PhotoService struct {
	students photoStudentRepository
	tx       txProvider
	store    photoStore
	signer   photoSigner
	config   PhotoConfig
	logger   *zap.Logger

	placeholderOnce sync.Once
	placeholder     []byte
}

// NewPhotoService constructs a PhotoService.
func NewPhotoService(students photoStudentRepository, tx txProvider, store photoStore, signer photoSigner, config PhotoConfig, logger *zap.Logger) *PhotoService {
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxPhotoBytes
	}
	if len(config.AllowedMIMEs) == 0 {
		config.AllowedMIMEs = []string{"image/jpeg", "image/png"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PhotoService{students: students, tx: tx, store: store, signer: signer, config: config, logger: logger}
}

// Upload decodes a base64 image (optionally a data URL), stores it and links it to the student.
// It returns the signed URL of the new photo.
func (s *PhotoService) Upload(ctx context.Context, studentID, payload string) (string, error) {
	data, err := s.decode(payload)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	ext, ok := photoExtensions[mime]
	if !ok || !s.allowed(mime) {
		return "", invalid("image must be a JPEG or PNG file")
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return "", notFoundOr(err, "student not found", "load student")
	}

	name, err := s.store.Save(uuid.NewString()+ext, data)
	if err != nil {
		return "", internalErr(err, "failed to store photo")
	}

	err = withTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.students.UpdatePhoto(ctx, tx, studentID, name); err != nil {
			return writeErr(err, "", "student not found", "update student photo")
		}
		return nil
	})
	if err != nil {
		if delErr := s.store.Delete(name); delErr != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("file", name), zap.Error(delErr))
		}
		return "", err
	}

	if student.Photo != nil && *student.Photo != "" {
		if err := s.store.Delete(*student.Photo); err != nil {
			s.logger.Warn("failed to remove previous photo", zap.String("file", *student.Photo), zap.Error(err))
		}
	}
	return s.URL(studentID, &name)
}

// URL returns a signed, expiring link to the student's photo or to the placeholder.
func (s *PhotoService) URL(studentID string, photo *string) (string, error) {
	file := ""
	if photo != nil {
		file = *photo
	}
	token, _, err := s.signer.Generate(studentID, file)
	if err != nil {
		return "", internalErr(err, "failed to sign photo url")
	}
	return "/uploads/" + token, nil
}

// Open resolves a signed token into image bytes. Tokens without a file yield the placeholder.
func (s *PhotoService) Open(token string) (*Photo, error) {
	_, file, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "photo link is invalid or expired")
	}
	if file == "" {
		return &Photo{Data: s.placeholderJPEG(), ContentType: "image/jpeg"}, nil
	}
	f, err := s.store.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Photo{Data: s.placeholderJPEG(), ContentType: "image/jpeg"}, nil
		}
		return nil, internalErr(err, "failed to open photo")
	}
	defer f.Close() //nolint:errcheck
	data, err := io.ReadAll(io.LimitReader(f, s.config.MaxBytes+1))
	if err != nil {
		return nil, internalErr(err, "failed to read photo")
	}
	return &Photo{Data: data, ContentType: http.DetectContentType(data)}, nil
}

func (s *PhotoService) decode(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, invalid("image must be a base64 data URL")
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, invalid("image is a required field")
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > s.config.MaxBytes+2 {
		return nil, invalid(fmt.Sprintf("image must not exceed %d KB", s.config.MaxBytes/1024))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "image is not valid base64")
	}
	if int64(len(data)) > s.config.MaxBytes {
		return nil, invalid(fmt.Sprintf("image must not exceed %d KB", s.config.MaxBytes/1024))
	}
	return data, nil
}

func (s *PhotoService) allowed(mime string) bool {
	for _, m := range s.config.AllowedMIMEs {
		if strings.EqualFold(m, mime) {
			return true
		}
	}
	return false
}

// placeholderJPEG draws a grey head-and-shoulders silhouette once and reuses it.
func (s *PhotoService) placeholderJPEG() []byte {
	s.placeholderOnce.Do(func() {
		const w, h = 160, 200
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		bg := color.RGBA{R: 226, G: 230, B: 234, A: 255}
		fg := color.RGBA{R: 160, G: 168, B: 176, A: 255}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Set(x, y, bg)
				dx, dy := x-w/2, y-75
				head := dx*dx+dy*dy <= 35*35
				bx, by := x-w/2, y-200
				body := bx*bx*4/9+by*by <= 80*80 && y > 120
				if head || body {
					img.Set(x, y, fg)
				}
			}
		}
		buf := &bytes.Buffer{}
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
			s.logger.Error("failed to encode placeholder photo", zap.Error(err))
			return
		}
		s.placeholder = buf.Bytes()
	})
	return s.placeholder
}
