// Package async runs dependent tasks concurrently.
//
// [Run] starts every task as soon as the tasks it waits on have succeeded,
// with a bound on how many run at once. A failed task never lets its
// dependents start; they are reported as [SkippedError]. Independent
// branches keep going.
package async
