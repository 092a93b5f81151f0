/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package main

//	@title			Machine Health APIs
//	@version		v3
//	@description	Vibration and temperature health analysis of rotating machines.

// @BasePath	/
// @host		localhost:48110

// @securityDefinitions.basic  BasicAuth
// @Security BasicAuth

//go:generate swag init --parseInternal=true --generalInfo=doc.go --dir=./,../../internal/router,../../pkg --pd=true --ot=json --output=../machine-health-swagger-ui/res/swagger/
