package bwlambda

// Region selects the AWS region a client is configured for.
type Region interface {
	resolve(env Environment) string
}

type localRegion struct{}

func (localRegion) resolve(env Environment) string { return env.awsRegion() }

type primaryRegion struct{}

func (primaryRegion) resolve(env Environment) string { return env.primaryRegion() }

type fixedRegion string

func (r fixedRegion) resolve(Environment) string { return string(r) }

// LocalRegion targets the region the function runs in (AWS_REGION).
func LocalRegion() Region { return localRegion{} }

// PrimaryRegion targets the primary deployment region (BW_PRIMARY_REGION).
func PrimaryRegion() Region { return primaryRegion{} }

// FixedRegion targets the given region regardless of where the function runs.
func FixedRegion(region string) Region { return fixedRegion(region) }
