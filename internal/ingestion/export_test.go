package ingestion

// BuildPDF exposes the fixture builder to the ingestion_test package.
var BuildPDF = buildPDF
