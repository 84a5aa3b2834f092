package subgraph

const roundFields = `
  roundId
  status
  cutoffTime
  duration
  valuePerEntry
  numberOfEntries
  numberOfParticipants
  maximumNumberOfDeposits
  maximumNumberOfParticipants
  winner
  drawnHash
  protocolFeeBp
  deposits(orderBy: indice, orderDirection: asc) {
    id
    round
    depositor
    tokenAddress
    tokenAmount
    tokenId
    tokenType
    entriesCount
    indice
    claimed
    roundValuePerEntry
  }`

const queryCurrentRound = `query CurrentRound {
  rounds(first: 1, orderBy: roundId, orderDirection: desc) {` + roundFields + `
  }
}`

const queryRoundByID = `query Round($roundId: String!) {
  rounds(first: 1, where: { roundId: $roundId }) {` + roundFields + `
  }
}`

const queryHistoryRounds = `query HistoryRounds($first: Int!, $skip: Int!) {
  rounds(
    first: $first
    skip: $skip
    orderBy: roundId
    orderDirection: desc
    where: { status_in: [DRAWN, CANCELLED] }
  ) {` + roundFields + `
  }
}`

const queryDepositsToWithdraw = `query DepositsToWithdraw($depositor: String!) {
  deposits(
    first: 1000
    orderBy: indice
    orderDirection: asc
    where: { depositor: $depositor, claimed: false, round_: { status: CANCELLED } }
  ) {
    id
    round
    depositor
    tokenAddress
    tokenAmount
    tokenId
    tokenType
    entriesCount
    indice
    claimed
    roundValuePerEntry
  }
}`

const queryWonRounds = `query WonRounds($winner: String!) {
  rounds(
    first: 100
    orderBy: roundId
    orderDirection: desc
    where: { winner: $winner, status: DRAWN }
  ) {` + roundFields + `
  }
}`

const queryAllowedCurrencies = `query AllowedCurrencies {
  currencies(first: 100, orderBy: symbol) {
    address
    symbol
    decimals
    isAllowed
  }
}`
