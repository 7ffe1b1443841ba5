package main

import "time"

// APIFlags hold the connection settings of the client commands.
type APIFlags struct {
	APIUrl     string
	APITimeout time.Duration
	Insecure   bool
}

type ActivityFlags struct {
	APIFlags
	Limit int
}

type ServeFlags struct {
	ConfigPath string
	Once       bool
	Daemonize  bool
	PidFile    string
	LogFile    string
}
