package config

// Base application details
const AppName = "provtrace"
const DefaultConfigFileName = "config.toml"
const DefaultLogFileName = "provtrace.log"

// Tracker defaults
const DefaultParseOnBackward = true
const SystemClipboard = true
