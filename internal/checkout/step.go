package checkout

type Step string

const (
	StepAddress Step = "ADDRESS"
	StepPayment Step = "PAYMENT"
	StepReview  Step = "REVIEW"
	StepPlaced  Step = "PLACED"
)

func (s Step) IsTerminal() bool {
	return s == StepPlaced
}

func (s Step) String() string {
	return string(s)
}

// next is the forward edge out of each non-terminal step.
var next = map[Step]Step{
	StepAddress: StepPayment,
	StepPayment: StepReview,
	StepReview:  StepPlaced,
}

var prev = map[Step]Step{
	StepPayment: StepAddress,
	StepReview:  StepPayment,
}
