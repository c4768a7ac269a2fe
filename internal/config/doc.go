// Package config provides configuration parsing for vtree projects.
//
// The configuration is stored in vtree.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "document": "page.yaml",
//	  "render": {
//	    "sanitize": true,
//	    "pretty": true
//	  },
//	  "preview": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "watch": true,
//	    "pollInterval": "200ms"
//	  },
//	  "metrics": {"enabled": true, "namespace": "vtree"},
//	  "tracing": {"tracerName": "vtree"},
//	  "log": {"level": "info", "format": "auto"},
//	  "publish": {
//	    "bucket": "my-site",
//	    "prefix": "snapshots",
//	    "region": "eu-west-1"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Preview:", cfg.PreviewURL())
package config
