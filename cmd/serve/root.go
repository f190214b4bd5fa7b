package serve

import (
	cmdUtil "github.com/ValentinKolb/moray/cmd/util"
	"github.com/ValentinKolb/moray/rpc/common"
	"github.com/ValentinKolb/moray/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start a moray development server",
		Long: `Start a moray development server. Buckets and objects are kept in memory, or in a bbolt file if --data-file is set.

The configuration can be set via command line flags or environment variables. The format of the environment variables is MORAY_<flag> (e.g. MORAY_DATA_FILE=moray.db)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:2020", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:2020 for tcp, /tmp/moray.sock for unix)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 30, cmdUtil.WrapString("I/O timeout in seconds for every frame"))

	key = "data-file"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Path of the bbolt file to persist buckets and objects in. Data is kept in memory if empty"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket write buffer (in KB)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket read buffer (in KB)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	ServeCmd.PersistentFlags().Int(key, -1, cmdUtil.WrapString("The linger time (in seconds, only for tcp, -1 keeps the OS default)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.DataFile = viper.GetString("data-file")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.ServerTransportConfig{
		Endpoint: viper.GetString("endpoint"),
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
			TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
		},
	}

	return nil
}

// run starts the moray server
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}
