package main

// ConfigCmd prints the configuration after every layer and flag has been
// applied. The API key is masked.
type ConfigCmd struct{}

func (c *ConfigCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	return printJSON(cfg.Redacted())
}
