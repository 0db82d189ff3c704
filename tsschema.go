package tsschema

// Version is recorded with every saved run.
const Version = "0.3.0"
