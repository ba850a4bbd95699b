package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はCMSサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandValidate はコンテンツファイルを検証することを示す。
	CommandValidate Command = "validate"
	// CommandRender はコンテンツからサイトのHTMLを生成することを示す。
	CommandRender Command = "render"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "validate":
		return CommandValidate
	case "render":
		return CommandRender
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
