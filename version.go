package agentcli

// Version is the release version, set at build time with
// -ldflags "-X github.com/spetersoncode/agentcli.Version=v1.2.3".
var Version = "dev"
