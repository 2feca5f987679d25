package domain

// KeyPrefix namespaces every key this service writes to the search backend.
const KeyPrefix = "recall:"

// DocumentIndex is the FT index over ingested documents.
const DocumentIndex = KeyPrefix + "docs:idx"

// DocumentKeyPrefix prefixes document hash keys covered by DocumentIndex.
const DocumentKeyPrefix = KeyPrefix + "doc:"
