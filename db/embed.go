// Package db provides the embedded database schema for the discount service.
package db

import _ "embed"

// Schema contains the DDL for the discounts, usage ledger, and audit tables.
//
//go:embed migrations/001_schema.sql
var Schema string
