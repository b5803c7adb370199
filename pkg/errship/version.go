package errship

// Version is the current errship release.
const Version = "1.0.0"
