// Copyright 2024 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	terminate "github.com/pulcy/go-terminate"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/binkynet/FastPWM/pkg/logging"
	"github.com/binkynet/FastPWM/pkg/server"
	"github.com/binkynet/FastPWM/pkg/service"
	"github.com/binkynet/FastPWM/pkg/service/bridge"
	"github.com/binkynet/FastPWM/pkg/service/mqtt"
	"github.com/binkynet/FastPWM/pkg/timer4"
	"github.com/binkynet/FastPWM/pkg/ui"
)

const (
	projectName            = "FastPWM"
	defaultHTTPPort        = 7130
	defaultSSHPort         = 7132
	defaultSourceFrequency = 16e6
	defaultAsyncFrequency  = 48e6
)

var (
	projectVersion = "dev"
	projectBuild   = "dev"
	maskAny        = errors.WithStack
)

func main() {
	var levelFlag string
	var logFile string
	var bridgeType string
	var pllLockPolls int
	var prescalerRatio uint32
	var postscalerFlag string
	var topLimit uint16
	var sourceFrequency float64
	var asyncFrequency float64
	var lockTimeout time.Duration
	var permissive bool
	var strictValues bool
	var beginPins []string
	var serverHost string
	var httpPort int
	var sshPort int
	var mqttBroker string
	var mqttPrefix string
	var sweepPeriod time.Duration
	var runUI bool

	pflag.StringVarP(&levelFlag, "level", "l", "info", "Set log level")
	pflag.StringVar(&logFile, "log-file", "", "Also write logs to this file")
	pflag.StringVarP(&bridgeType, "bridge", "b", "virtual", "Type of bridge to use (virtual)")
	pflag.IntVar(&pllLockPolls, "pll-lock-polls", 3, "Number of polls before the virtual PLL locks (negative never locks)")
	pflag.Uint32Var(&prescalerRatio, "prescaler", 1, "Timer clock prescaler ratio (1, 2, 4 ... 16384)")
	pflag.StringVar(&postscalerFlag, "postscaler", "", "PLL postscaler (1|1.5|2); empty runs from the system clock")
	pflag.Uint16Var(&topLimit, "top", timer4.MaxTopLimit, "TOP limit of the counter (0..2047)")
	pflag.Float64Var(&sourceFrequency, "source-frequency", defaultSourceFrequency, "Frequency (Hz) of the system clock")
	pflag.Float64Var(&asyncFrequency, "async-frequency", defaultAsyncFrequency, "Frequency (Hz) of the PLL clock")
	pflag.DurationVar(&lockTimeout, "lock-timeout", time.Second, "Maximum wait for the PLL to lock (0 waits forever)")
	pflag.BoolVar(&permissive, "permissive", false, "Truncate invalid timer settings instead of failing")
	pflag.BoolVar(&strictValues, "strict-values", false, "Reject duty values above the TOP limit")
	pflag.StringSliceVar(&beginPins, "begin", nil, "Pins to begin at startup (13|10|6, append ':inv' to invert)")
	pflag.StringVar(&serverHost, "host", "0.0.0.0", "Host address the servers will listen on")
	pflag.IntVar(&httpPort, "http-port", defaultHTTPPort, "Port the HTTP server will listen on (0 disables)")
	pflag.IntVar(&sshPort, "ssh-port", defaultSSHPort, "Port the SSH server will listen on (0 disables)")
	pflag.StringVar(&mqttBroker, "mqtt-broker", "", "Address (host:port) of the MQTT broker; empty disables MQTT")
	pflag.StringVar(&mqttPrefix, "mqtt-prefix", "fastpwm", "Prefix of all MQTT topics")
	pflag.DurationVar(&sweepPeriod, "sweep", 0, "Sweep the duty of all begun pins with this period (0 disables)")
	pflag.BoolVar(&runUI, "ui", false, "Run the terminal UI")
	pflag.Parse()

	// Prepare logger
	var consoleOut io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if runUI {
		// The terminal belongs to the UI
		consoleOut = nil
	}
	var fileOut io.Writer
	if logFile != "" {
		f, err := logging.OpenLogFile(logFile)
		if err != nil {
			Exitf("Failed to open log file: %v\n", err)
		}
		defer f.Close()
		fileOut = f
	}
	logger := zerolog.New(logging.NewMultiWriter(consoleOut, fileOut)).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(levelFlag)
	if err != nil {
		Exitf("Invalid log level '%s': %v\n", levelFlag, err)
	}
	logger = logger.Level(level)

	// Prepare timer config
	prescaler, err := timer4.PrescalerFromRatio(prescalerRatio)
	if err != nil {
		Exitf("Invalid prescaler: %v\n", err)
	}
	var postscaler timer4.Postscaler
	freq := sourceFrequency
	if postscalerFlag != "" {
		postscaler, err = timer4.ParsePostscaler(postscalerFlag)
		if err != nil {
			Exitf("Invalid postscaler: %v\n", err)
		}
		freq = asyncFrequency
	}

	var br bridge.API
	switch bridgeType {
	case "virtual":
		br = bridge.NewVirtualBridge(bridge.VirtualConfig{
			PLLLockPolls: pllLockPolls,
		})
	default:
		Exitf("Unknown bridge type '%s' (virtual)\n", bridgeType)
	}

	svc, err := service.NewService(service.Config{
		Timer: timer4.Config{
			Prescaler:        prescaler,
			Postscaler:       postscaler,
			TopLimit:         topLimit,
			LockTimeout:      lockTimeout,
			LockPollInterval: time.Millisecond,
			Permissive:       permissive,
		},
		SourceFrequency: freq,
		StrictValues:    strictValues,
	}, service.Dependencies{
		Logger: logger,
		Bridge: br,
	})
	if err != nil {
		Exitf("Failed to initialize Service: %v\n", err)
	}
	defer svc.Close()

	// Prepare to shutdown in a controlled manor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := terminate.NewTerminator(func(template string, args ...interface{}) {
		logger.Info().Msgf(template, args...)
	}, cancel)
	go t.ListenSignals()

	if err := beginAll(ctx, svc, beginPins); err != nil {
		Exitf("Failed to begin pins: %v\n", err)
	}

	httpServer, err := server.New(server.Config{
		Host:     serverHost,
		HTTPPort: httpPort,
		SSHPort:  sshPort,
	}, logger, ui.NewHandler(svc), svc)
	if err != nil {
		Exitf("Failed to initialize Server: %v\n", err)
	}

	var mqttBridge *mqtt.Bridge
	if mqttBroker != "" {
		mqttBridge, err = mqtt.New(mqtt.Config{
			BrokerAddress: mqttBroker,
			ClientID:      fmt.Sprintf("fastpwm-%d", os.Getpid()),
			TopicPrefix:   mqttPrefix,
		}, mqtt.Dependencies{
			Logger:  logger,
			Service: svc,
		})
		if err != nil {
			Exitf("Failed to initialize MQTT bridge: %v\n", err)
		}
	}

	if !runUI {
		fmt.Printf("Starting %s (version %s build %s)\n", projectName, projectVersion, projectBuild)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(ctx) })
	if mqttBridge != nil {
		g.Go(func() error { return mqttBridge.Run(ctx) })
	}
	if sweepPeriod > 0 {
		g.Go(func() error { return svc.RunSweep(ctx, sweepPeriod) })
	}
	if runUI {
		g.Go(func() error {
			// Quitting the UI stops the process
			defer cancel()
			root := ui.NewRoot(svc)
			defer root.Close()
			_, err := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return maskAny(err)
		})
	}
	if err := g.Wait(); err != nil {
		Exitf("Service run failed: %#v", err)
	}
}

// beginAll begins all pins given as "<pin>" or "<pin>:inv".
func beginAll(ctx context.Context, svc service.Service, pins []string) error {
	for _, x := range pins {
		name, suffix, _ := strings.Cut(x, ":")
		pin, err := timer4.ParsePin(name)
		if err != nil {
			return maskAny(err)
		}
		invert := false
		switch strings.ToLower(suffix) {
		case "":
		case "inv", "invert", "inverted":
			invert = true
		default:
			return errors.Errorf("invalid suffix '%s' in '%s'", suffix, x)
		}
		if err := svc.Begin(ctx, pin, invert); err != nil {
			return maskAny(err)
		}
	}
	return nil
}

// Print the given error message and exit with code 1
func Exitf(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}
