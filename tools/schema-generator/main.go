// Command schema-generator writes the JSON schema of the llm-bridge config
// file. Run it through go generate in the config package.
package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/llm-bridge/config"
)

func main() {
	output := flag.String("o", "llm-bridge.schema.json", "output file")
	flag.Parse()

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		logrus.Fatalf("Error generating schema: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0755); err != nil {
		logrus.Fatalf("Error creating schema directory: %v", err)
	}
	if err := os.WriteFile(*output, append(schemaBytes, '\n'), 0644); err != nil {
		logrus.Fatalf("Error writing schema file: %v", err)
	}

	logrus.Infof("Generated config schema at %s", *output)
}
