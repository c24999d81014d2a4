package deepface

// RepresentRequest for POST /represent
type RepresentRequest struct {
	Img              string `json:"img"`               // base64 encoded image
	ModelName        string `json:"model_name"`        // "Facenet512", "VGG-Face", etc
	DetectorBackend  string `json:"detector_backend"`  // "retinaface", "mtcnn", etc
	EnforceDetection bool   `json:"enforce_detection"` // fail instead of embedding a faceless crop
	Align            bool   `json:"align"`             // geometric alignment before embedding
}

// RepresentResponse from POST /represent
type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

type RepresentResult struct {
	Embedding  []float32  `json:"embedding"`
	FacialArea FacialArea `json:"facial_area"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}
