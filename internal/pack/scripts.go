package pack

import (
	"embed"
	"fmt"
	"strings"
)

// The script generators are pure: they take data and return file content.
// Callers persist the results as artifacts. The static pieces (setup
// scripts, README) live as templates; the dynamic scripts depend on the
// batch files and device version of each build configuration and are
// assembled here.

//go:embed templates
var templates embed.FS

func template(name string) string {
	data, err := templates.ReadFile("templates/" + name)
	if err != nil {
		// The templates are compiled in; a missing one is a packaging bug.
		panic(err)
	}
	return string(data)
}

// SetupScriptBash returns the nrfutil_setup.sh content sourced by the
// generated scripts.
func SetupScriptBash() string { return template("nrfutil_setup.sh") }

// SetupScriptBat returns the nrfutil_setup.bat content.
func SetupScriptBat() string { return template("nrfutil_setup.bat") }

// ScriptsReadme returns the README.md content for the flash package.
func ScriptsReadme() string { return template("README.md") }

// batchDomain derives the domain name from a packed batch file name.
func batchDomain(name string) string {
	domain, found := strings.CutSuffix(name, "_generated_nrfutil_batch.json")
	if !found {
		return name
	}
	return domain
}

// FlashScriptBash generates flash.sh. One block per batch file; the order is
// the physical flashing order west used during the dry run.
func FlashScriptBash(batches []BatchFile, deviceVersion string) string {
	var b strings.Builder

	b.WriteString(`#!/usr/bin/env bash
# Flash firmware to device using nrfutil
# Usage: ./flash.sh [OPTIONS] [EXTRA_ARGS]
# Options:
#   --serial-number <SERIAL>  Target specific device
#   --version-agnostic        Skip version checks
#   EXTRA_ARGS                Any additional arguments, they will be passed
#                             to nrfutil directly (e.g. --core Network)

set -e

SCRIPT_DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"

`)
	fmt.Fprintf(&b, "REQUIRED_DEVICE_VERSION=%q\n\n", deviceVersion)
	b.WriteString(`source "$SCRIPT_DIR/nrfutil_setup.sh"
setup_nrfutil "$@"
EXTRA_ARGS=$(filter_args "$@")

cd "$SCRIPT_DIR/.."

`)

	for _, bf := range batches {
		domain := batchDomain(bf.Name)
		fmt.Fprintf(&b, "echo \"Flashing domain: %s\"\n", domain)

		parts := []string{"nrfutil", "device"}
		if bf.ExtMemConfigName != "" {
			parts = append(parts, "--x-ext-mem-config-file", bf.ExtMemConfigName)
		}
		parts = append(parts, "x-execute-batch", "--batch-path", bf.Name, "$EXTRA_ARGS")
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n\n")
	}

	b.WriteString("echo \"Flash completed successfully!\"\n")
	return b.String()
}

// FlashScriptBat generates flash.bat, the Windows rendering of flash.sh.
func FlashScriptBat(batches []BatchFile, deviceVersion string) string {
	var b strings.Builder

	b.WriteString(`@echo off
REM Flash firmware to device using nrfutil
REM Usage: flash.bat [OPTIONS] [EXTRA_ARGS]
REM Options:
REM   --serial-number <SERIAL>  Target specific device
REM   --version-agnostic        Skip version checks
REM   EXTRA_ARGS                Any additional arguments, they will be passed
REM                             to nrfutil directly (e.g. --core Network)

setlocal enabledelayedexpansion

set SCRIPT_DIR=%~dp0

`)
	fmt.Fprintf(&b, "set REQUIRED_DEVICE_VERSION=%s\n\n", deviceVersion)
	b.WriteString(`call "%SCRIPT_DIR%nrfutil_setup.bat" %*
if %ERRORLEVEL% neq 0 exit /b 1

cd %SCRIPT_DIR%..

`)

	for _, bf := range batches {
		domain := batchDomain(bf.Name)
		fmt.Fprintf(&b, "echo Flashing domain: %s\n", domain)

		parts := []string{"nrfutil", "device"}
		if bf.ExtMemConfigName != "" {
			parts = append(parts, "--x-ext-mem-config-file", bf.ExtMemConfigName)
		}
		parts = append(parts, "x-execute-batch", "--batch-path", bf.Name, "%FILTERED_ARGS%")
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
		fmt.Fprintf(&b, "if %%ERRORLEVEL%% neq 0 (\n    echo Error: Flash failed for domain %s\n    pause\n    exit /b 1\n)\n\n", domain)
	}

	b.WriteString("echo Flash completed successfully!\npause\nexit /b 0\n")
	return b.String()
}

type helperScript struct {
	name        string
	description string
	command     string
}

var helperScripts = []helperScript{
	{"erase", "Erase device flash memory", "erase"},
	{"reset", "Reset device", "reset"},
	{"recover", "Recover device (unlock and erase)", "recover"},
}

func helperScriptBash(h helperScript, deviceVersion string) string {
	firstWord, _, _ := strings.Cut(h.description, " ")
	return fmt.Sprintf(`#!/usr/bin/env bash
# %[1]s
# Usage: ./%[2]s.sh [--serial-number <SERIAL>] [--version-agnostic] [EXTRA_ARGS]

set -e

SCRIPT_DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"

REQUIRED_DEVICE_VERSION=%[3]q

source "$SCRIPT_DIR/nrfutil_setup.sh"
setup_nrfutil "$@"
EXTRA_ARGS=$(filter_args "$@")

echo "%[1]s..."
nrfutil device %[4]s $EXTRA_ARGS
echo "%[5]s completed successfully!"
`, h.description, h.name, deviceVersion, h.command, firstWord)
}

func helperScriptBat(h helperScript, deviceVersion string) string {
	firstWord, _, _ := strings.Cut(h.description, " ")
	return fmt.Sprintf(`@echo off
REM %[1]s
REM Usage: %[2]s.bat [--serial-number <SERIAL>] [--version-agnostic] [EXTRA_ARGS]

setlocal enabledelayedexpansion

set SCRIPT_DIR=%%~dp0
set REQUIRED_DEVICE_VERSION=%[3]s

call "%%SCRIPT_DIR%%nrfutil_setup.bat" %%*
if %%ERRORLEVEL%% neq 0 exit /b 1

echo %[1]s...
nrfutil device %[4]s %%FILTERED_ARGS%%
if %%ERRORLEVEL%% neq 0 (
    echo %[1]s failed!
    pause
    exit /b 1
)
echo %[5]s completed successfully!
pause
exit /b 0
`, h.description, h.name, deviceVersion, h.command, firstWord)
}

// FlashScripts returns every generated script file for one build
// configuration, keyed by file name.
func FlashScripts(batches []BatchFile, deviceVersion string) map[string]string {
	scripts := map[string]string{
		"nrfutil_setup.sh":  SetupScriptBash(),
		"nrfutil_setup.bat": SetupScriptBat(),
		"README.md":         ScriptsReadme(),
		"flash.sh":          FlashScriptBash(batches, deviceVersion),
		"flash.bat":         FlashScriptBat(batches, deviceVersion),
	}
	for _, h := range helperScripts {
		scripts[h.name+".sh"] = helperScriptBash(h, deviceVersion)
		scripts[h.name+".bat"] = helperScriptBat(h, deviceVersion)
	}
	return scripts
}
