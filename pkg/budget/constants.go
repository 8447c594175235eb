package budget

const (
	operationPlan = "plan"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	defaultEssentialsThresholdPercent = 80.0
	fullProgressPercent               = 100.0
)
