// Package config loads vdiff server configuration.
//
// Configuration lives in vdiff.json or vdiff.yaml in the working directory
// (or any file passed to LoadFile). Missing fields take the defaults from
// New:
//
//	server:
//	  addr: ":8080"
//	  path: /ws
//	  readTimeout: 60s
//	  writeTimeout: 10s
//	  pingInterval: 30s
//	  maxMessageSize: 65536
//	  allowedOrigins: []
//	log:
//	  level: info
//	  format: text
//	metrics:
//	  enabled: true
//	  path: /metrics
//	  namespace: vdiff
//	tracing:
//	  enabled: false
//	  tracerName: github.com/vango-dev/vdiff
package config
