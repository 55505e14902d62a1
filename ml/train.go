package ml

import "fmt"

// TrainOptions mirror the hyperparameters the shipped models were built with.
type TrainOptions struct {
	TestSize  float64
	Seed      int64
	Neighbors int
	NumTrees  int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		TestSize:  0.2,
		Seed:      42,
		Neighbors: 3,
		NumTrees:  100,
	}
}

// TrainReport carries held-out accuracy of both models.
type TrainReport struct {
	TrainRows            int
	TestRows             int
	KNNAccuracy          float64
	RandomForestAccuracy float64
}

// Train fits the scaler, k-NN and forest on a split of ds. k-NN sees scaled
// rows, the forest sees raw rows, matching how Recommender queries them.
func Train(ds *Dataset, opts TrainOptions) (*Artifacts, TrainReport, error) {
	if ds == nil || ds.Len() < 2 {
		return nil, TrainReport{}, fmt.Errorf("need at least 2 rows to train: %w", ErrEmptyTrainingSet)
	}
	train, test := ds.TrainTestSplit(opts.TestSize, opts.Seed)

	scaler := &StandardScaler{}
	if err := scaler.Fit(train.X); err != nil {
		return nil, TrainReport{}, fmt.Errorf("fit scaler: %w", err)
	}
	trainScaled, err := scaler.Transform(train.X)
	if err != nil {
		return nil, TrainReport{}, err
	}
	testScaled, err := scaler.Transform(test.X)
	if err != nil {
		return nil, TrainReport{}, err
	}

	knn := NewKNNClassifier(opts.Neighbors)
	if err := knn.Fit(trainScaled, train.Y); err != nil {
		return nil, TrainReport{}, fmt.Errorf("fit knn: %w", err)
	}
	forest := NewRandomForestClassifier(opts.NumTrees, opts.Seed)
	if err := forest.Fit(train.X, train.Y); err != nil {
		return nil, TrainReport{}, fmt.Errorf("fit random forest: %w", err)
	}

	report := TrainReport{TrainRows: train.Len(), TestRows: test.Len()}
	if test.Len() > 0 {
		knnPred, err := knn.PredictAll(testScaled)
		if err != nil {
			return nil, TrainReport{}, err
		}
		rfPred, err := forest.PredictAll(test.X)
		if err != nil {
			return nil, TrainReport{}, err
		}
		report.KNNAccuracy = Accuracy(test.Y, knnPred)
		report.RandomForestAccuracy = Accuracy(test.Y, rfPred)
	}

	return &Artifacts{Scaler: scaler, KNN: knn, Forest: forest}, report, nil
}
