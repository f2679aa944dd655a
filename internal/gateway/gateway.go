package gateway

import (
	"context"

	"github.com/nao1215/crawldash/internal/model"
)

// Gateway is the remote report API as seen by the dashboard core.
//
// Failures are either cancellations (IsCancelled reports true) or
// *TransportError values.
type Gateway interface {
	// FetchPage returns one page of reports. It is idempotent.
	FetchPage(ctx context.Context, page, pageSize int) (model.Page, error)

	// FetchOne returns one report including its broken link details.
	FetchOne(ctx context.Context, id int64) (model.Report, error)

	// Create submits a URL for analysis and returns the new report,
	// initially pending.
	Create(ctx context.Context, url string) (model.Report, error)

	// Remove deletes a report.
	Remove(ctx context.Context, id int64) error

	// StartCrawl runs the analysis of one report and returns the updated
	// report. It blocks until the server responds or ctx is cancelled, in
	// which case the error satisfies IsCancelled.
	StartCrawl(ctx context.Context, id int64) (model.Report, error)
}

// Authenticator is the authentication side of the report API.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password string) (string, error)
}
