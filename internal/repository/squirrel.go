package repository

import sq "github.com/Masterminds/squirrel"

// psql is the shared Squirrel statement builder configured for PostgreSQL dollar placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"
