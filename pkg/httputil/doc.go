// Package httputil provides HTTP helpers for the topology backend client.
//
// [Retry] re-runs an operation with exponential backoff when it fails with a
// [RetryableError]. The client marks network errors and 5xx/429 responses
// as retryable; everything else (4xx, undecodable bodies) fails at once.
//
//	err := httputil.Retry(ctx, httputil.Policy{Attempts: 3, Delay: 500 * time.Millisecond},
//	    func(ctx context.Context) error {
//	        return fetch(ctx)
//	    })
//
// The poller runs on a fixed schedule, so the default policy is a single
// attempt: the next tick is the retry.
package httputil
