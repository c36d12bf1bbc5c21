// Package httputil holds the retry loop shared by the repository transports.
//
// Transient failures (connection errors, 5xx and 429 responses) are wrapped
// with [Retryable]; [Retry] re-runs the operation with exponential backoff
// and returns any other error immediately:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
package httputil
