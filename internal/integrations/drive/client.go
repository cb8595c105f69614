// Package drive wraps the Google Drive v3 API for deal-room ingestion:
// folder listing, media downloads, and format exports for Google-native
// types. The OAuth popup runs in the browser; this client only ever
// receives the resulting access token.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"alphavault-backend/internal/integrations"

	"golang.org/x/oauth2"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// MimeTypeFolder marks a picked item as a folder to expand.
	MimeTypeFolder = "application/vnd.google-apps.folder"
	// MimeTypeGoogleDoc and MimeTypeGoogleSheet are Google-native types
	// that need a format export instead of a media download.
	MimeTypeGoogleDoc   = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	// MimeTypeXLSX is the export target for Google Sheets.
	MimeTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// defaultReadyTimeout bounds the readiness probe. The API either
	// answers inside this window or the feature reports a timeout.
	defaultReadyTimeout = 20 * time.Second
)

// supportedMimeTypes is the folder-listing allow-list.
var supportedMimeTypes = []string{
	"application/pdf",
	"text/plain",
	"text/csv",
	MimeTypeGoogleDoc,
	MimeTypeGoogleSheet,
	MimeTypeXLSX,
	"application/vnd.ms-excel",
}

// ErrNotReady reports that the Drive API did not answer the readiness
// probe within the bounded window.
var ErrNotReady = errors.New("timed out waiting for the Google Drive API")

// File is one listing entry.
type File struct {
	ID       string
	Name     string
	MimeType string
}

// Client is an explicitly constructed Drive handle with a bounded
// readiness check, passed down to the ingestion pipeline so it can be
// swapped for a fake in tests.
type Client struct {
	readyTimeout time.Duration
	// newService is replaceable in tests.
	newService func(ctx context.Context, accessToken string) (*driveapi.Service, error)
}

// NewClient creates a Drive client.
func NewClient() *Client {
	return &Client{
		readyTimeout: defaultReadyTimeout,
		newService:   newService,
	}
}

func newService(ctx context.Context, accessToken string) (*driveapi.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return driveapi.NewService(ctx, option.WithTokenSource(ts))
}

func (c *Client) service(ctx context.Context, accessToken string) (*driveapi.Service, error) {
	if accessToken == "" {
		return nil, integrations.NewClassifiedError(integrations.KindConfiguration, "no Drive access token provided")
	}
	svc, err := c.newService(ctx, accessToken)
	if err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: "failed to initialize Drive client", Err: err}
	}
	return svc, nil
}

// EnsureReady probes the Drive API once with a bounded deadline. A
// deadline hit maps to ErrNotReady so callers can tell "slow or blocked
// network" apart from a rejected credential.
func (c *Client) EnsureReady(ctx context.Context, accessToken string) error {
	ctx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()

	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return err
	}

	_, err = svc.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &integrations.ClassifiedError{
				Kind:    integrations.KindTransport,
				Message: "Timeout: Google API did not respond. Check your network or ad-blockers.",
				Err:     ErrNotReady,
			}
		}
		return classifyDriveError(err)
	}
	return nil
}

// ListFolder returns the immediate children of a folder, restricted to
// the supported-type allow-list. Folders are not recursed here; the
// caller decides whether to re-supply a returned folder reference.
func (c *Client) ListFolder(ctx context.Context, accessToken, folderID string) ([]File, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	res, err := svc.Files.List().
		Q(folderQuery(folderID)).
		Fields("files(id, name, mimeType)").
		PageSize(1000).
		Context(ctx).
		Do()
	if err != nil {
		log.Printf("WARN [DriveClient] ListFolder %s failed: %v", folderID, err)
		return nil, classifyDriveError(err)
	}

	files := make([]File, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, File{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
	}
	return files, nil
}

// folderQuery builds the Files.List query for a folder's supported
// children. Single quotes in the ID are backslash-escaped so the value
// cannot terminate the quoted query term early.
func folderQuery(folderID string) string {
	clauses := make([]string, len(supportedMimeTypes))
	for i, m := range supportedMimeTypes {
		clauses[i] = fmt.Sprintf("mimeType = '%s'", m)
	}
	escaped := strings.ReplaceAll(folderID, `'`, `\'`)
	return fmt.Sprintf("'%s' in parents and trashed = false and (%s)", escaped, strings.Join(clauses, " or "))
}

// Download fetches a file's bytes. Google Docs are exported as PDF and
// Google Sheets as XLSX; everything else comes down as raw media.
func (c *Client) Download(ctx context.Context, accessToken, fileID, mimeType string) ([]byte, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var body io.ReadCloser

	switch {
	case strings.Contains(mimeType, MimeTypeGoogleDoc):
		r, err := svc.Files.Export(fileID, "application/pdf").Context(ctx).Download()
		if err != nil {
			return nil, classifyDriveError(err)
		}
		body = r.Body
	case strings.Contains(mimeType, MimeTypeGoogleSheet):
		r, err := svc.Files.Export(fileID, MimeTypeXLSX).Context(ctx).Download()
		if err != nil {
			return nil, classifyDriveError(err)
		}
		body = r.Body
	default:
		r, err := svc.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, classifyDriveError(err)
		}
		body = r.Body
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: fmt.Sprintf("failed to read file %s", fileID), Err: err}
	}
	return data, nil
}

// classifyDriveError maps Drive API failures onto the error taxonomy.
func classifyDriveError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return &integrations.ClassifiedError{Kind: integrations.KindAuth, Message: fmt.Sprintf("Drive permission denied (%d): %s", apiErr.Code, apiErr.Message), Err: err}
		case apiErr.Code == 429:
			return &integrations.ClassifiedError{Kind: integrations.KindQuota, Message: "Drive API rate limit exceeded", Err: err}
		case apiErr.Code == 404:
			return &integrations.ClassifiedError{Kind: integrations.KindData, Message: fmt.Sprintf("Drive file not found: %s", apiErr.Message), Err: err}
		default:
			return &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: fmt.Sprintf("Drive API error (%d): %s", apiErr.Code, apiErr.Message), Err: err}
		}
	}
	return &integrations.ClassifiedError{Kind: integrations.KindTransport, Message: "Drive API unreachable", Err: err}
}
