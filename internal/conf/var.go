package conf

// Conf is the process-wide configuration, set by bootstrap.InitConfig.
var Conf *Config
