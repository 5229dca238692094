// Package database loads consolidated short-sale volume rows into PostgreSQL.
//
// Rows are copied into a transaction-scoped stage table and then upserted into
// short_sale_volume, so re-running an aggregation replaces earlier values for
// the same (market center, symbol, granularity, period).
package database
