package cmd

type Config struct {
	HTTPPort             string
	DBHost               string
	DBPort               string
	DBUser               string
	DBPassword           string
	DBName               string
	DBSslMode            string
	OfferTokenSecret     string
	OfferValidityMinutes string
	OperatorPhone        string
	NotifyServiceURL     string
	SettleServiceURL     string
	CdnBaseURL           string
	PayoutPerStopRate    string
	PayoutPerMileRate    string
	PayoutPerStopMinutes string
}
