/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/labstack/echo/v4"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const defaultPort = 48111

type uiConfig struct {
	Port int64
}

var lc = logger.NewClient("machine-health-swagger-ui", "INFO")

func main() {
	workingDir, err := os.Getwd()
	if err != nil {
		lc.Errorf("Failed to get current working directory: %v", err)
		return
	}
	cfg, err := loadConfig(workingDir)
	if err != nil {
		lc.Errorf("Error reading config: %v", err)
		return
	}
	lc.Infof("Swagger UI port: %d", cfg.Port)

	if baseUrl := os.Getenv("BASE_URL"); baseUrl != "" {
		host, external := publicHost(baseUrl)
		if err := rewriteHost(swaggerFile(workingDir), host, external); err != nil {
			lc.Errorf("Failed to update the swagger host: %v", err)
			os.Exit(1)
		}
	}

	e := newServer(workingDir)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", cfg.Port)))
}

func swaggerFile(workingDir string) string {
	return filepath.Join(workingDir, "res", "swagger", "swagger.json")
}

func newServer(workingDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Static("/", filepath.Join(workingDir, "res", "swagger"))
	return e
}

// loadConfig reads res/configuration.toml, Port defaults when it is absent
func loadConfig(workingDir string) (uiConfig, error) {
	path := filepath.Join(workingDir, "res", "configuration.toml")
	lc.Infof("Loading swagger config from: %s", path)

	tree, err := toml.LoadFile(path)
	if err != nil {
		return uiConfig{}, errors.Wrapf(err, "loading %s", path)
	}
	cfg := uiConfig{Port: defaultPort}
	if raw := tree.Get("Port"); raw != nil {
		port, err := cast.ToInt64E(raw)
		if err != nil || port <= 0 || port > 65535 {
			return uiConfig{}, errors.Errorf("invalid Port %v in %s", raw, path)
		}
		cfg.Port = port
	}
	return cfg, nil
}

// publicHost is the host browsers reach the APIs on, either the external domain or the nginx port
func publicHost(baseUrl string) (string, bool) {
	external, err := strconv.ParseBool(os.Getenv("IS_EXTERNAL_AUTH"))
	if err != nil {
		external = false
	}
	if external {
		return baseUrl + os.Getenv("DOMAIN"), true
	}
	nginxPort := os.Getenv("NGINX_PORT")
	if nginxPort == "" {
		nginxPort = "80"
	}
	return baseUrl + ":" + nginxPort, false
}

// rewriteHost points the swagger document at host. External auth replaces basic auth, so the
// security definitions are dropped.
func rewriteHost(path string, host string, stripSecurity bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading swagger file")
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, "parsing swagger file")
	}
	doc["host"] = host
	if stripSecurity {
		delete(doc, "security")
		delete(doc, "securityDefinitions")
	}
	updated, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return errors.Wrap(err, "encoding swagger file")
	}
	return errors.Wrap(os.WriteFile(path, updated, 0o644), "writing swagger file")
}
