// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers hand it a
// parsed command, it calls the scene store and assembles the view models.
package service
