package config

type WorkerKeyStruct struct {
	PersistAnswersQueue string
	PendingScoresQueue  string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue: "persist_answers_queue",
	PendingScoresQueue:  "pending_scores_queue",
}
