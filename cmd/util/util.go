package util

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/moray/rpc/client"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/serializer"
	"github.com/ValentinKolb/moray/rpc/transport"
	"github.com/ValentinKolb/moray/rpc/transport/tcp"
	"github.com/ValentinKolb/moray/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strings"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds the connection and pool flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 30, WrapString("I/O timeout in seconds for every request and response frame (0 disables it)"))

	key = "transport-endpoints"
	cmd.PersistentFlags().String(key, "localhost:2020", WrapString("The address of the moray service. Multiple endpoints can be specified as a comma-separated list, new connections are spread round robin across them"))

	key = "transport-max-connections"
	cmd.PersistentFlags().Int(key, 4, WrapString("Upper bound of simultaneously open connections"))

	key = "transport-claim-timeout"
	cmd.PersistentFlags().Int(key, 5000, WrapString("How long a call waits for a free connection (in milliseconds, -1 waits forever)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket write buffer (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the socket read buffer (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, -1, WrapString("The linger time (in seconds, only for tcp, -1 keeps the OS default)"))
}

// InitConfig loads .env files and makes viper read MORAY_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("moray")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			Endpoints:               strings.Split(viper.GetString("transport-endpoints"), ","),
			MaxConnections:          viper.GetInt("transport-max-connections"),
			ClaimTimeoutMillisecond: viper.GetInt("transport-claim-timeout"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	for i, endpoint := range conf.Transport.Endpoints {
		conf.Transport.Endpoints[i] = strings.TrimSpace(endpoint)
	}

	return conf
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	case "msgpack":
		return serializer.NewMsgPackSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates a client transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates a server transport based on configuration
func GetServerTransport() (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// NewClient binds the flags of cmd and creates a client from the resulting configuration
func NewClient(cmd *cobra.Command) (*client.MorayClient, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return nil, err
	}

	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	t, err := GetTransport()
	if err != nil {
		return nil, err
	}

	return client.NewMorayClient(*GetClientConfig(), t, s)
}

// ParseJSONObject parses a command line argument holding a JSON object
func ParseJSONObject(arg string) (map[string]interface{}, error) {
	var value map[string]interface{}
	if err := json.Unmarshal([]byte(arg), &value); err != nil {
		return nil, fmt.Errorf("invalid JSON object %q: %w", arg, err)
	}
	if value == nil {
		return nil, fmt.Errorf("invalid JSON object %q: expected an object", arg)
	}
	return value, nil
}

// PrintJSON writes v as one line of JSON to stdout
func PrintJSON(v interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(v)
}
