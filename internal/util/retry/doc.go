// Package retry provides exponential backoff retry logic for transient
// failures and a poll loop for long-running remote operations.
//
// [WithExponentialBackoff] retries an operation with configurable max
// retries, initial delay and maximum delay. Errors wrapped with [Fatal]
// stop the loop immediately. [Poll] re-checks an asynchronous operation at
// a fixed interval until it reports completion.
package retry
