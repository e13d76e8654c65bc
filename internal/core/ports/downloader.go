package ports

import "context"

// Downloader fetches artifact bytes.
//
//go:generate go run go.uber.org/mock/mockgen -source=downloader.go -destination=mocks/mock_downloader.go -package=mocks
type Downloader interface {
	// Download returns the content at url. Transport failures are domain.ErrNetwork.
	Download(ctx context.Context, url string) ([]byte, error)
}
