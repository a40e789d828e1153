// Package lib holds support code that is not a layer of its own.
//
// job runs the asynq worker that warms the scene image cache.
package lib
