// Package httputil provides the HTTP client used to fetch run files from
// remote sources.
//
// # Client
//
// [Client] performs GET requests with default headers, classifies status
// codes and reports every request to the observability HTTP hooks:
//
//	c := httputil.NewClient(30*time.Second, nil)
//	data, err := c.Get(ctx, "https://example.org/results.json")
//
// A 404 yields [ErrNotFound]; network failures and other statuses yield
// [ErrNetwork]. Network failures, 429 and 5xx responses are wrapped in
// [RetryableError].
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff while it keeps
// failing with a [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    data, err = c.Get(ctx, url)
//	    return err
//	})
package httputil
