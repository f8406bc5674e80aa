// Package models contains the GORM persistence models of the inventory snapshot.
// Domain entities stay free of ORM tags; each model converts to and from its
// domain type with ToDomain and FromDomain.
package models
